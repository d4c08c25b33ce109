package telegram

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/skip2/go-qrcode"

	"github.com/ki2helper/panel-api/internal/models"
)

// DefaultAvatar is returned when the user has no profile photo or the photo
// cannot be fetched.
const DefaultAvatar = "/assets/images/avatars/avatar_default.jpg"

const magicLinkText = "Для авторизації в панель " +
	"використайте посилання нижче (воно дійсне протягом 5 хвилин):\n%s"

// Notifier delivers OTP codes and magic links through the Telegram Bot API
// and resolves admin profiles (names and avatar).
type Notifier struct {
	bot    *tgbotapi.BotAPI
	client *http.Client
	logger *slog.Logger
}

// New authenticates the bot against the Telegram API.
func New(token string, logger *slog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize bot: %w", err)
	}

	logger.Info("telegram bot authorized", slog.String("bot", bot.Self.UserName))

	return &Notifier{
		bot:    bot,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}, nil
}

// SendOTP delivers the one-time code to the user's chat.
func (n *Notifier) SendOTP(ctx context.Context, userID int64, otp int) error {
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf("OTP: %d", otp))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}
	return nil
}

// SendMagicLink delivers the magic link as a protected message plus a QR
// photo of the same link, and returns the id of the link message. A QR
// delivery failure is logged but does not fail the attempt.
func (n *Notifier) SendMagicLink(ctx context.Context, userID int64, link string) (int, error) {
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf(magicLinkText, link))
	msg.ProtectContent = true
	msg.DisableWebPagePreview = true

	sent, err := n.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to send magic link: %w", err)
	}

	if png, err := qrcode.Encode(link, qrcode.Medium, 256); err == nil {
		photo := tgbotapi.NewPhoto(userID, tgbotapi.FileBytes{Name: "magic-link.png", Bytes: png})
		photo.ProtectContent = true
		if _, err := n.bot.Send(photo); err != nil {
			n.logger.Warn("failed to send magic link qr", slog.Any("error", err))
		}
	}

	return sent.MessageID, nil
}

// Member resolves the user's Telegram names. The returned profile carries
// no avatar; see Photo.
func (n *Notifier) Member(ctx context.Context, userID int64) (*models.Profile, error) {
	member, err := n.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: userID,
			UserID: userID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get chat member: %w", err)
	}
	if member.User == nil {
		return nil, fmt.Errorf("chat member %d has no user", userID)
	}

	return &models.Profile{
		UserID:    member.User.ID,
		Username:  member.User.UserName,
		FirstName: member.User.FirstName,
		LastName:  member.User.LastName,
	}, nil
}

// Photo resolves the user's first profile photo to a jpeg data URI, or the
// default avatar path when none is available.
func (n *Notifier) Photo(ctx context.Context, userID int64) (string, error) {
	photos, err := n.bot.GetUserProfilePhotos(tgbotapi.NewUserProfilePhotos(userID))
	if err != nil {
		return "", fmt.Errorf("failed to get profile photos: %w", err)
	}

	if photos.TotalCount == 0 || len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return DefaultAvatar, nil
	}

	fileURL, err := n.bot.GetFileDirectURL(photos.Photos[0][0].FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve photo file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build photo request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("photo download returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw), nil
}
