package invite

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `_`, `\_`, `%`, `\%`)

// EscapeLike escapes the LIKE wildcards in s so that it only matches
// literally. The query must declare `\` as its escape character.
func EscapeLike(s string) string { return likeEscaper.Replace(s) }

// Search finds the characters whose Slack display name or Slack id contain
// the query. Case sensitivity follows the database's LIKE rules.
func (s *Store) Search(ctx context.Context, q string) ([]int64, error) {
	if len(q) == 0 {
		return []int64{}, nil
	}
	pattern := "%" + EscapeLike(q) + "%"
	sb := s.flavor.NewSelectBuilder()
	query, args := sb.Select("character_id").
		From("invite").
		Where(sb.Or(
			"slack_name LIKE "+sb.Var(pattern)+` ESCAPE '\'`,
			"CAST(slack_id AS TEXT) LIKE "+sb.Var(pattern)+` ESCAPE '\'`,
		)).
		OrderBy("character_id").
		Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search invites")
	}
	return scanIDs(rows)
}
