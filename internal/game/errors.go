package game

// Error is a rule violation with a stable machine-readable code. Rule
// errors are returned to the initiating client only and never mutate room
// state.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

var (
	ErrRoomNotFound         = &Error{Code: "ROOM_NOT_FOUND", Message: "room not found"}
	ErrGameInProgress       = &Error{Code: "GAME_IN_PROGRESS", Message: "game already in progress"}
	ErrRoomFull             = &Error{Code: "ROOM_FULL", Message: "room is full"}
	ErrNameTaken            = &Error{Code: "NAME_TAKEN", Message: "name already taken"}
	ErrPlayerNotFound       = &Error{Code: "PLAYER_NOT_FOUND", Message: "player not found"}
	ErrNotHost              = &Error{Code: "NOT_HOST", Message: "only the host can do that"}
	ErrCannotStart          = &Error{Code: "CANNOT_START", Message: "game cannot start yet"}
	ErrGameNotFound         = &Error{Code: "GAME_NOT_FOUND", Message: "game not found"}
	ErrInvalidPhase         = &Error{Code: "INVALID_PHASE", Message: "action not allowed in this phase"}
	ErrNotYourTurn          = &Error{Code: "NOT_YOUR_TURN", Message: "it is not your turn"}
	ErrInvalidSelection     = &Error{Code: "INVALID_SELECTION", Message: "selection must be exactly 3 dice"}
	ErrInvalidDie           = &Error{Code: "INVALID_DIE", Message: "die does not belong to you"}
	ErrDieAlreadySpent      = &Error{Code: "DIE_ALREADY_SPENT", Message: "die already spent"}
	ErrNoSelection          = &Error{Code: "NO_SELECTION", Message: "no selection to confirm"}
	ErrAlreadyConfirmed     = &Error{Code: "ALREADY_CONFIRMED", Message: "selection already confirmed"}
	ErrPredictionSubmitted  = &Error{Code: "PREDICTION_ALREADY_SUBMITTED", Message: "prediction already submitted"}
	ErrInvalidPrediction    = &Error{Code: "INVALID_SELECTION", Message: "prediction not available for this game"}
	ErrInvalidConfig        = &Error{Code: "INVALID_CONFIG", Message: "config out of bounds"}
	ErrReconnectFailed      = &Error{Code: "RECONNECT_FAILED", Message: "reconnect token invalid or expired"}
)
