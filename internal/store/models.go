package store

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Guide is a user's guide. XML holds the guide file, from which the
// declared variables are read.
type Guide struct {
	ID        string `gorm:"primaryKey;size:64"`
	Owner     string `gorm:"size:128;not null;index"`
	Title     string
	XML       string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateRow is one template of a guide. Position orders templates
// inside their guide.
type TemplateRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	GuideID   string `gorm:"size:64;not null;index:idx_templates_guide_position,priority:1"`
	Owner     string `gorm:"size:128;not null;index"`
	Position  int    `gorm:"not null;default:0;index:idx_templates_guide_position,priority:2"`
	Title     string
	Active    Flag   `gorm:"not null;default:false"`
	Kind      string `gorm:"size:16;not null"`
	Condition string `gorm:"type:text"`
	Format    string `gorm:"size:16"`
	Content   string `gorm:"type:text"`
	Boxes     datatypes.JSON
	PDFFile   string `gorm:"column:pdf_file"` // relative to the store's PDF directory
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name independent of the Go type name.
func (TemplateRow) TableName() string { return "templates" }

// BeforeSave stores an empty list rather than NULL for templates without boxes.
func (r *TemplateRow) BeforeSave(*gorm.DB) error {
	if len(r.Boxes) == 0 {
		r.Boxes = datatypes.JSON("[]")
	}
	return nil
}

// Flag is a boolean column that also reads the legacy text values
// "true" and "false".
type Flag bool

// Scan implements sql.Scanner.
func (f *Flag) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(v)
	case int64:
		*f = v != 0
	case []byte:
		return f.parse(string(v))
	case string:
		return f.parse(v)
	default:
		return fmt.Errorf("store: cannot scan %T into Flag", src)
	}
	return nil
}

func (f *Flag) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*f = false
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("store: invalid flag %q", s)
	}
	*f = Flag(b)
	return nil
}

// Value implements driver.Valuer.
func (f Flag) Value() (driver.Value, error) {
	return bool(f), nil
}
