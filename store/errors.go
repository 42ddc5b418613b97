package store

import "errors"

// ErrReducerDispatch is returned when a reducer dispatches an action.
var ErrReducerDispatch = errors.New("reducers may not dispatch actions")
