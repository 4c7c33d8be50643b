package models

import "io"

// Session - серверная область, в которой живут загруженные вместе файлы.
// Пустой ID означает, что сессии нет.
type Session struct {
	ID    string   `json:"session_id,omitempty"`
	Files []string `json:"files"`
}

func (s Session) Active() bool {
	return s.ID != ""
}

// SelectedFile - кандидат на загрузку. Содержимое читается только при отправке пакета.
type SelectedFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelWarning NotificationLevel = "warning"
	LevelDanger  NotificationLevel = "danger"
)

func (l NotificationLevel) String() string {
	return string(l)
}

type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

// ProgressSnapshot - последнее состояние индикатора прогресса, история не хранится.
type ProgressSnapshot struct {
	OperationID string `json:"operation_id,omitempty"`
	Visible     bool   `json:"visible"`
	Percent     int    `json:"percent"`
	Status      string `json:"status"`
}

// Controls - какие действия сейчас доступны пользователю.
type Controls struct {
	Upload   bool `json:"upload"`
	Analyze  bool `json:"analyze"`
	Converse bool `json:"converse"`
	Compare  bool `json:"compare"`
	Download bool `json:"download"`
	Cleanup  bool `json:"cleanup"`
}
