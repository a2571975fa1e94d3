package checkout

// State 決済オーケストレーターの状態
type State string

const (
	StateIdle                   State = "idle"
	StateMethodSelected         State = "method_selected"
	StateValidating             State = "validating"
	StateDispatched             State = "dispatched"
	StateAwaitingExternalAction State = "awaiting_external_action"
	StateReconciling            State = "reconciling"
	StateResolved               State = "resolved"
)

// String 文字列表現を返す
func (s State) String() string {
	return string(s)
}

// InFlight 決済処理中の状態かどうかを返す
func (s State) InFlight() bool {
	switch s {
	case StateValidating, StateDispatched, StateAwaitingExternalAction, StateReconciling:
		return true
	default:
		return false
	}
}

// CanSelect 金額と決済手段を選び直せる状態かどうかを返す
func (s State) CanSelect() bool {
	switch s {
	case StateIdle, StateMethodSelected, StateResolved:
		return true
	default:
		return false
	}
}
