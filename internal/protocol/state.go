package protocol

import (
	"github.com/pkg/errors"
	"github.com/snowflk/general-loader/internal/wire"
)

// streamState tracks the stream lifecycle. Enforcement is deliberately
// lenient, matching the writer's permissive posture: declaration events
// are allowed anywhere short of CLOSED, while data-carrying events are
// confined to OPEN.
type streamState int

const (
	stateInit streamState = iota
	stateSchemaAnnounced
	statePathAnnounced
	stateOpen
	stateClosed
)

func (s streamState) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateSchemaAnnounced:
		return "SCHEMA_ANNOUNCED"
	case statePathAnnounced:
		return "PATH_ANNOUNCED"
	case stateOpen:
		return "OPEN"
	case stateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

type stateMachine struct {
	state streamState
}

// before validates op against the current state and, for events that
// have a defined transition, performs it. It must be called before the
// event's body is dispatched to the loader.
func (m *stateMachine) before(op wire.Opcode) error {
	switch op {
	case wire.EvtUseSchema, wire.EvtUseSchema2:
		if m.state != stateInit {
			return errors.Wrapf(ErrProtocolState, "use-schema issued in state %s", m.state)
		}
		m.state = stateSchemaAnnounced
		return nil

	case wire.EvtRemotePath, wire.EvtRemotePath2:
		if m.state != stateSchemaAnnounced && m.state != statePathAnnounced {
			return errors.Wrapf(ErrProtocolState, "remote-path issued in state %s", m.state)
		}
		m.state = statePathAnnounced
		return nil

	case wire.EvtOpenStream:
		if m.state == stateOpen || m.state == stateClosed {
			return errors.Wrapf(ErrProtocolState, "open-stream issued in state %s", m.state)
		}
		m.state = stateOpen
		return nil

	case wire.EvtEndStream:
		if m.state != stateOpen {
			return errors.Wrapf(ErrProtocolState, "end-stream issued in state %s", m.state)
		}
		m.state = stateClosed
		return nil

	case wire.EvtNewTable, wire.EvtNewTable2, wire.EvtNewColumn, wire.EvtEmptyDefault:
		if m.state == stateClosed {
			return errors.Wrapf(ErrProtocolState, "%s issued in state %s", op.Name(), m.state)
		}
		return nil

	case wire.EvtCellData, wire.EvtCellData2, wire.EvtCellDefault, wire.EvtCellDefault2,
		wire.EvtNextRow, wire.EvtMoveAhead:
		if m.state != stateOpen {
			return errors.Wrapf(ErrProtocolState, "%s issued in state %s", op.Name(), m.state)
		}
		return nil

	case wire.EvtErrMsg, wire.EvtErrMsg2:
		return nil

	default:
		return nil
	}
}
