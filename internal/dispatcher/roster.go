package dispatcher

// DefaultRoster is the stock hive: the roles the captain knows about
// and the specialization each one's worker runs. Deployments override
// this by constructing their own roster.
func DefaultRoster() Roster {
	return Roster{
		"architect":          "architecture",
		"database-architect": "database",
		"rust-expert":        "rust-translation",
		"devops":             "infrastructure",
		"qa":                 "testing",
		"security":           "security-audit",
		"api-designer":       "api-design",
	}
}
