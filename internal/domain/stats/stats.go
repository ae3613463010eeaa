// Package stats holds the per-user dashboard summary.
package stats

// Summary aggregates what a user can see: projects they own and tasks across
// every project they are a member of, broken down by status.
type Summary struct {
	TotalProjects int            `json:"totalProjects"`
	TotalTasks    int            `json:"totalTasks"`
	TasksByStatus map[string]int `json:"tasksByStatus"`
}
