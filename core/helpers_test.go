package core

import "fmt"

func errorsJoin(prefix string, err error) error {
	return fmt.Errorf("%s: %w", prefix, err)
}
