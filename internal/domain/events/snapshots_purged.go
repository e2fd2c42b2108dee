package events

var SnapshotsPurgedTopic = "SnapshotsPurgedEvent"

// SnapshotsPurged is published once per (user, query) whose snapshots were removed by retention.
type SnapshotsPurged struct {
	UserID int64
	Query  string
}
