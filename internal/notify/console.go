package notify

import (
	"io"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/fatih/color"
)

// ConsoleSink печатает уведомления в терминал цветом уровня.
type ConsoleSink struct {
	out     io.Writer
	success *color.Color
	warning *color.Color
	danger  *color.Color
}

func NewConsoleSink(out io.Writer, noColor bool) *ConsoleSink {
	s := &ConsoleSink{
		out:     out,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		danger:  color.New(color.FgRed, color.Bold),
	}
	if noColor {
		s.success.DisableColor()
		s.warning.DisableColor()
		s.danger.DisableColor()
	}
	return s
}

func (s *ConsoleSink) Notify(n models.Notification) {
	c := s.success
	switch n.Level {
	case models.LevelWarning:
		c = s.warning
	case models.LevelDanger:
		c = s.danger
	}
	c.Fprintf(s.out, "[%s] %s\n", n.Level, n.Message)
}
