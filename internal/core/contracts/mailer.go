package contracts

import "context"

// WelcomeMailer sends the single transactional mail the system produces,
// the post-signup welcome. Delivery is best effort for callers.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}
