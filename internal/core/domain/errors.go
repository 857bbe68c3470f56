package domain

import "errors"

// Handshake authentication failures. Fatal to the connection attempt,
// never retried by the server.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrIdentityNotFound  = errors.New("identity not found")
)

var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrBadLogin      = errors.New("invalid email or password")
)

var (
	ErrRequestNotFound   = errors.New("friend request not found")
	ErrRequestNotPending = errors.New("friend request is not pending")
	ErrRequestExists     = errors.New("friend request already exists")
	ErrSelfRequest       = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends    = errors.New("already friends")
	ErrNotRequestParty   = errors.New("not a party to this friend request")
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message text or attachment required")
	ErrSelfMessage     = errors.New("cannot send messages to yourself")
	ErrNotFriends      = errors.New("must be friends to exchange messages")
	ErrNotReceiver     = errors.New("only the receiver may perform this action")
)
