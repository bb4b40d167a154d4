package editor

// Mode is the interaction started by a pointer-down.
type Mode int

const (
	ModeNone Mode = iota
	ModeMove
	ModeResizeTL
	ModeResizeTR
	ModeResizeBL
	ModeResizeBR
	ModeResizeTC
	ModeResizeBC
	ModeResizeML
	ModeResizeMR
)

var modeNames = [...]string{
	ModeNone:     "none",
	ModeMove:     "move",
	ModeResizeTL: "resize-tl",
	ModeResizeTR: "resize-tr",
	ModeResizeBL: "resize-bl",
	ModeResizeBR: "resize-br",
	ModeResizeTC: "resize-tc",
	ModeResizeBC: "resize-bc",
	ModeResizeML: "resize-ml",
	ModeResizeMR: "resize-mr",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// MarshalText lets modes appear by name in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// sides reports which rectangle edges a resize mode moves.
type sides struct {
	left, right, top, bottom bool
}

func (m Mode) sides() sides {
	switch m {
	case ModeResizeTL:
		return sides{left: true, top: true}
	case ModeResizeTR:
		return sides{right: true, top: true}
	case ModeResizeBL:
		return sides{left: true, bottom: true}
	case ModeResizeBR:
		return sides{right: true, bottom: true}
	case ModeResizeTC:
		return sides{top: true}
	case ModeResizeBC:
		return sides{bottom: true}
	case ModeResizeML:
		return sides{left: true}
	case ModeResizeMR:
		return sides{right: true}
	}
	return sides{}
}
