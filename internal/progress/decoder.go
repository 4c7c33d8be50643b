package progress

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const maxFrameSize = 8 * 1024 * 1024

type Kind int

const (
	KindPercent Kind = iota
	KindStatus
	KindComplete
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindPercent:
		return "percent"
	case KindStatus:
		return "progress"
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

func (k Kind) Terminal() bool {
	return k == KindComplete || k == KindError
}

// Message - одно сообщение канала прогресса.
type Message struct {
	Kind    Kind
	Percent int
	Text    string
}

type frame struct {
	event string
	data  []string
}

// Decoder читает поток text/event-stream и раскладывает кадры на сообщения.
type Decoder struct {
	scanner *bufio.Scanner
	pending []Message
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Decoder{scanner: scanner}
}

// Next возвращает следующее сообщение или io.EOF, когда поток закончился.
func (d *Decoder) Next() (Message, error) {
	for len(d.pending) == 0 {
		f, err := d.readFrame()
		if err != nil {
			return Message{}, err
		}
		d.pending = f.messages()
	}

	msg := d.pending[0]
	d.pending = d.pending[1:]
	return msg, nil
}

func (d *Decoder) readFrame() (frame, error) {
	var f frame
	hasData := false

	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")

		if line == "" {
			if hasData {
				return f, nil
			}
			f = frame{}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			f.event = value
		case "data":
			f.data = append(f.data, value)
			hasData = true
		}
	}

	if err := d.scanner.Err(); err != nil {
		return frame{}, err
	}
	// незавершенный кадр в конце потока отбрасывается
	return frame{}, io.EOF
}

func (f frame) messages() []Message {
	switch f.event {
	case "", "message":
		p, ok := parsePercent(strings.Join(f.data, "\n"))
		if !ok {
			return nil
		}
		return []Message{{Kind: KindPercent, Percent: p}}
	case "progress", "complete", "error":
	default:
		return nil
	}

	var out []Message
	data := f.data
	// кадр вида "data: 30\nevent: progress\ndata: текст": первая числовая строка - процент
	if len(data) > 1 {
		if p, ok := parsePercent(data[0]); ok {
			out = append(out, Message{Kind: KindPercent, Percent: p})
			data = data[1:]
		}
	}

	text := strings.Join(data, "\n")
	switch f.event {
	case "progress":
		out = append(out, Message{Kind: KindStatus, Text: text})
	case "complete":
		out = append(out, Message{Kind: KindComplete, Text: text})
	case "error":
		out = append(out, Message{Kind: KindError, Text: text})
	}
	return out
}

func parsePercent(s string) (int, bool) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return min(max(p, 0), 100), true
}
