// Package index derives the secondary-index attributes that place workshop
// and user records into their listing partitions. Every function here is
// pure: the same record always yields the same entries.
package index

import (
	"strings"

	"github.com/Shivanand-hulikatti/skillsforge/internal/model"
)

// Name identifies one secondary index of the single table.
type Name string

const (
	// ByDate groups all workshops and all students.
	ByDate Name = "gsi1"
	// ByCategory groups workshops per category.
	ByCategory Name = "gsi2"
)

const (
	// SortKeyMarker is the sort key of every primary record.
	SortKeyMarker = "METADATA"

	WorkshopPrefix = "WORKSHOP#"
	UserPrefix     = "USER#"
	categoryPrefix = "CATEGORY#"

	// AllWorkshops is the partition holding every live workshop ordered by date#time.
	AllWorkshops = "WORKSHOP#ALL"
	// AllStudents is the partition holding every student ordered by creation time.
	AllStudents = "USER#STUDENTS"

	createdLayout = "2006-01-02T15:04:05.000000Z"
)

// Entry places a record into one partition of one index.
type Entry struct {
	Index     Name
	Partition string
	SortKey   string
}

// WorkshopKey returns the primary partition key for a workshop id.
func WorkshopKey(id string) string { return WorkshopPrefix + id }

// UserKey returns the primary partition key for a user id.
func UserKey(id string) string { return UserPrefix + id }

// IDFromKey strips the entity prefix from a primary partition key.
func IDFromKey(pk string) string {
	if i := strings.IndexByte(pk, '#'); i >= 0 {
		return pk[i+1:]
	}
	return pk
}

// CategoryPartition returns the by-category partition for a category value.
func CategoryPartition(category string) string { return categoryPrefix + category }

// DateSortKey composes the chronological sort key. Zero-padded ISO dates and
// times order lexicographically.
func DateSortKey(date, clock string) string { return date + "#" + clock }

// ForWorkshop returns the index entries of a workshop: one in the global
// by-date partition and one in its category partition.
func ForWorkshop(w model.Workshop) []Entry {
	sk := DateSortKey(w.Date, w.Time)
	return []Entry{
		{Index: ByDate, Partition: AllWorkshops, SortKey: sk},
		{Index: ByCategory, Partition: CategoryPartition(w.Category), SortKey: sk},
	}
}

// ForUser returns the index entries of a user. Only students are grouped;
// admins have no index presence.
func ForUser(u model.User) []Entry {
	if u.Role != model.RoleStudent {
		return nil
	}
	return []Entry{
		{Index: ByDate, Partition: AllStudents, SortKey: u.CreatedAt.UTC().Format(createdLayout)},
	}
}
