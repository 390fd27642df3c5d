package tui

type state int

const (
	loadingState state = iota
	playingState
	finishedState
	errorState
)
