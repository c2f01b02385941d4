package sndpcm

// step is one unit of a multi-step acquisition together with the action that undoes it.
type step struct {
	do   func() error
	undo func()
}

// acquire runs steps in order. When a step fails, every step that already succeeded is
// undone in reverse order and the failure is returned.
func acquire(steps ...step) error {
	for i, s := range steps {
		if err := s.do(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if steps[j].undo != nil {
					steps[j].undo()
				}
			}

			return err
		}
	}

	return nil
}

// releaseAll runs every fn even when some fail and returns the first error.
// Errors after the first are handed to dropped.
func releaseAll(dropped func(error), fns ...func() error) error {
	var first error
	for _, fn := range fns {
		err := fn()
		if err == nil {
			continue
		}

		if first == nil {
			first = err
		} else if dropped != nil {
			dropped(err)
		}
	}

	return first
}
