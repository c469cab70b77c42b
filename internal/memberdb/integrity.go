package memberdb

import (
	"context"
	"fmt"
)

// integrityChecks pairs a description with a query selecting rows
// that violate one of the store's invariants. A healthy database
// returns no rows for any of them.
var integrityChecks = []struct {
	issue string
	query string
}{
	{
		issue: "wrong member type",
		query: `SELECT oid FROM member WHERE
			(discord NOT NULL AND mcid NOT NULL AND type!='full') OR
			(discord NOT NULL AND mcid IS NULL AND type!='discord') OR
			(discord IS NULL AND mcid NOT NULL AND
				NOT COALESCE((SELECT guild FROM wynn WHERE id=member.mcid), 0) AND type!='wynn') OR
			(discord IS NULL AND mcid NOT NULL AND
				COALESCE((SELECT guild FROM wynn WHERE id=member.mcid), 0) AND type!='guild')`,
	},
	{
		issue: "empty member",
		query: `SELECT oid FROM member WHERE discord IS NULL AND mcid IS NULL`,
	},
	{
		issue: "dangling profile link",
		query: `SELECT oid FROM member WHERE
			(discord NOT NULL AND NOT EXISTS
				(SELECT 1 FROM discord WHERE id=member.discord AND mid=member.oid)) OR
			(mcid NOT NULL AND NOT EXISTS
				(SELECT 1 FROM wynn WHERE id=member.mcid AND mid=member.oid))`,
	},
	{
		issue: "dangling member link from discord",
		query: `SELECT id FROM discord WHERE mid NOT NULL AND NOT EXISTS
			(SELECT 1 FROM member WHERE oid=discord.mid AND discord=discord.id)`,
	},
	{
		issue: "dangling member link from wynn",
		query: `SELECT id FROM wynn WHERE mid NOT NULL AND NOT EXISTS
			(SELECT 1 FROM member WHERE oid=wynn.mid AND mcid=wynn.id)`,
	},
	{
		issue: "guild flag without guild profile",
		query: `SELECT id FROM wynn WHERE guild AND NOT EXISTS
			(SELECT 1 FROM guild WHERE id=wynn.id)`,
	},
	{
		issue: "guild profile without guild flag",
		query: `SELECT id FROM guild WHERE NOT EXISTS
			(SELECT 1 FROM wynn WHERE id=guild.id AND guild)`,
	},
}

// CheckIntegrity audits the store against its invariants and returns
// a description of each violation found. An empty result means the
// database is consistent.
func (s *Store) CheckIntegrity(ctx context.Context) ([]string, error) {
	var issues []string

	for _, check := range integrityChecks {
		rows, err := s.db.QueryContext(ctx, check.query)
		if err != nil {
			return nil, fmt.Errorf("integrity check %q failed: %w", check.issue, err)
		}

		var ids []string
		for rows.Next() {
			var id any
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("integrity check %q failed: %w", check.issue, err)
			}
			ids = append(ids, fmt.Sprint(id))
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("integrity check %q failed: %w", check.issue, err)
		}
		rows.Close()

		if len(ids) > 0 {
			issues = append(issues, fmt.Sprintf("%s: %v", check.issue, ids))
		}
	}

	return issues, nil
}
