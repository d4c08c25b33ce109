package models

// Documents managed through the generic collection resource endpoints.
// Field sets mirror what the panel frontend sends; ids are opaque strings
// assigned server-side and echoed back as "_id".

type Birthday struct {
	ID          string `json:"_id"`
	StudentName string `json:"student_name" validate:"required"`
	Date        string `json:"date" validate:"required"`
}

type Playlist struct {
	ID   string `json:"_id"`
	Link string `json:"link" validate:"required,url"`
}

type Lesson struct {
	ID        string `json:"_id"`
	Name      string `json:"name" validate:"required"`
	ShortName string `json:"short_name" validate:"required"`
	Type      string `json:"type" validate:"required"`
	Teacher   string `json:"teacher" validate:"required"`
	Zoom      string `json:"zoom"`
}

type Teacher struct {
	ID   string `json:"_id"`
	Name string `json:"name" validate:"required"`
}

// Week holds the current week parity ("Чисельник" or "Знаменник").
type Week struct {
	ID   string `json:"_id"`
	Type string `json:"type" validate:"required"`
}

type TimetableItem struct {
	Number      int `json:"number" validate:"required"`
	StartHour   int `json:"start_hour" validate:"gte=0,lte=23"`
	StartMinute int `json:"start_minute" validate:"gte=0,lte=59"`
	EndHour     int `json:"end_hour" validate:"gte=0,lte=23"`
	EndMinute   int `json:"end_minute" validate:"gte=0,lte=59"`
	Break       int `json:"break" validate:"gte=0"`
}

type Timetable struct {
	ID    string          `json:"_id"`
	Items []TimetableItem `json:"items" validate:"required,dive"`
}

type ScheduleItem struct {
	Number   int    `json:"number" validate:"required"`
	WeekType string `json:"week_type" validate:"required"`
	Lesson   Lesson `json:"lesson" validate:"required"`
}

type Schedule struct {
	ID        string         `json:"_id"`
	Day       string         `json:"day" validate:"required"`
	DayNumber int            `json:"day_number" validate:"required,gte=1,lte=7"`
	Items     []ScheduleItem `json:"items" validate:"required,dive"`
}

// Job is one cron-like scheduled task toggle.
type Job struct {
	Run         int    `json:"run" validate:"gte=0,lte=1"`
	Description string `json:"description" validate:"required"`
}

type CronJobs struct {
	CheckSchedule Job `json:"check_schedule"`
	NewYear       Job `json:"new_year"`
	CheckBirthday Job `json:"check_birthday"`
	SwapWeek      Job `json:"swap_week"`
}

type Cron struct {
	ID   string   `json:"_id"`
	Run  int      `json:"run" validate:"gte=0,lte=1"`
	Jobs CronJobs `json:"jobs"`
}

// BulkDelete is the request body for bulk-delete endpoints.
type BulkDelete struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}
