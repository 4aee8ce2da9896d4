package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AddIndexes ensures lookup indexes that are not expressed in model tags.
func AddIndexes(db *gorm.DB, log logrus.FieldLogger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// "groups I belong to" lookups; the composite primary key leads with group_id
		{"group_members", "idx_group_members_user_id", "user_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.WithField("index", idx.name).Debug("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(logrus.Fields{"index": idx.name, "table": idx.table}).Info("created index")
	}

	return nil
}
