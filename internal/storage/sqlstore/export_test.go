package sqlstore

import "context"

// Truncate empties both tables between tests that share a database.
func (s *Store) Truncate(ctx context.Context) error {
	for _, stmt := range []string{"DELETE FROM art_pieces", "DELETE FROM user_profiles"} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
