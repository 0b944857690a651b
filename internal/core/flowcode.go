package core

import (
	"fmt"
	"strings"
)

// FlowEventKind distinguishes the three flow-code token kinds.
type FlowEventKind string

const (
	FlowPhaseEntry   FlowEventKind = "phase"
	FlowProcessEntry FlowEventKind = "process"
	FlowErrorMark    FlowEventKind = "error"
)

// FlowEvent is one parsed flow-code token.
type FlowEvent struct {
	Kind    FlowEventKind
	Phase   PhaseID   // set for phase entries
	Process ProcessID // set for process entries
}

func (e FlowEvent) String() string {
	switch e.Kind {
	case FlowPhaseEntry:
		return fmt.Sprintf("S%d", int(e.Phase))
	case FlowProcessEntry:
		return fmt.Sprintf("P%d", int(e.Process))
	default:
		return "X"
	}
}

// FlowCode is the append-only audit string of the traversal. Tokens are
// only ever appended; the string is never rewritten.
type FlowCode struct {
	code strings.Builder
}

// NewFlowCode creates an empty flow code.
func NewFlowCode() *FlowCode {
	return &FlowCode{}
}

// ResumeFlowCode restores a flow code from its serialized form. The
// input is validated before being adopted.
func ResumeFlowCode(code string) (*FlowCode, error) {
	if _, err := ParseFlowCode(code); err != nil {
		return nil, err
	}
	fc := &FlowCode{}
	fc.code.WriteString(code)
	return fc, nil
}

// AppendPhase records a phase entry.
func (f *FlowCode) AppendPhase(phase PhaseID) {
	fmt.Fprintf(&f.code, "S%d", int(phase))
}

// AppendProcess records a process entry.
func (f *FlowCode) AppendProcess(proc ProcessID) {
	fmt.Fprintf(&f.code, "P%d", int(proc))
}

// AppendError records an error mark.
func (f *FlowCode) AppendError() {
	f.code.WriteByte('X')
}

// String returns the serialized flow code.
func (f *FlowCode) String() string {
	return f.code.String()
}

// Events parses the accumulated code back into its event stream.
func (f *FlowCode) Events() []FlowEvent {
	events, err := ParseFlowCode(f.code.String())
	if err != nil {
		// The builder only appends valid tokens.
		panic(fmt.Sprintf("flow code self-parse failed: %v", err))
	}
	return events
}

// ParseFlowCode parses a flow code into its event stream. The parse is
// total: any malformed input is a parse error, never a partial result.
func ParseFlowCode(code string) ([]FlowEvent, error) {
	events := make([]FlowEvent, 0, len(code)/2)
	for i := 0; i < len(code); {
		switch c := code[i]; c {
		case 'S':
			if i+1 >= len(code) {
				return nil, ErrParse(fmt.Sprintf("flow code truncated at offset %d: S without digit", i))
			}
			d := code[i+1]
			if d < '1' || d > '5' {
				return nil, ErrParse(fmt.Sprintf("flow code offset %d: invalid phase digit %q", i+1, d))
			}
			events = append(events, FlowEvent{Kind: FlowPhaseEntry, Phase: PhaseID(d - '0')})
			i += 2
		case 'P':
			if i+1 >= len(code) {
				return nil, ErrParse(fmt.Sprintf("flow code truncated at offset %d: P without digit", i))
			}
			d := code[i+1]
			if d < '1' || d > '3' {
				return nil, ErrParse(fmt.Sprintf("flow code offset %d: invalid process digit %q", i+1, d))
			}
			events = append(events, FlowEvent{Kind: FlowProcessEntry, Process: ProcessID(d - '0')})
			i += 2
		case 'X':
			events = append(events, FlowEvent{Kind: FlowErrorMark})
			i++
		default:
			return nil, ErrParse(fmt.Sprintf("flow code offset %d: unexpected character %q", i, c))
		}
	}
	return events, nil
}

// RenderFlowEvents serializes an event stream back to a flow code.
func RenderFlowEvents(events []FlowEvent) string {
	var b strings.Builder
	for _, e := range events {
		b.WriteString(e.String())
	}
	return b.String()
}
