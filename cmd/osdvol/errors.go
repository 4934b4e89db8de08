package main

import "errors"

var (
	// ErrInvalidArgument is returned for a missing or unrecognized action token.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoServer means nothing is listening on the coordination socket.
	ErrNoServer = errors.New("no server listening")

	// ErrServerRunning means another live process holds the coordination channel.
	ErrServerRunning = errors.New("server already running")

	// ErrChannelUnavailable means the coordination channel could not be set up
	// for a reason other than a live server (permissions, path too long, ...).
	ErrChannelUnavailable = errors.New("coordination channel unavailable")

	// ErrDeviceRead means the initial device state could not be loaded.
	ErrDeviceRead = errors.New("device read failed")

	// ErrWrongMode is returned when an action is applied to a state of the other mode.
	ErrWrongMode = errors.New("action does not belong to this mode")

	// ErrUnknownAction is returned when a wire tag does not name an action.
	ErrUnknownAction = errors.New("unknown action tag")

	// ErrUnsupported is returned by backends that cannot serve a mode or action.
	ErrUnsupported = errors.New("unsupported by backend")
)
