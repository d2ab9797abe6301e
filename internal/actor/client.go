package actor

import "context"

// Get asks the actor for key and waits for the answer.
func (s *Sender) Get(ctx context.Context, key string) (string, bool, error) {
	reply := NewReply[Lookup]()
	if err := s.Send(ctx, Get{Key: key, Reply: reply}); err != nil {
		return "", false, err
	}

	l, err := reply.Wait(ctx)
	if err != nil {
		return "", false, err
	}
	return l.Value, l.Found, nil
}

// Set stores value under key. It returns once the command is queued.
func (s *Sender) Set(ctx context.Context, key, value string) error {
	return s.Send(ctx, Set{Key: key, Value: value})
}

// Clear removes every key. It returns once the command is queued.
func (s *Sender) Clear(ctx context.Context) error {
	return s.Send(ctx, Clear{})
}

// StartTask asks the actor to launch task id. The outcome is reported through
// the actor's Reporter, not to the caller.
func (s *Sender) StartTask(ctx context.Context, id uint32) error {
	return s.Send(ctx, StartTask{ID: id})
}
