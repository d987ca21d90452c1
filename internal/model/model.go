package model

import (
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// SchemaVersion is written to ManifestInfo on first setup.
const SchemaVersion = 1

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ManifestInfo{},
	&CrewRecord{},
}

// ManifestInfo records which schema the database was created with
type ManifestInfo struct {
	gorm.Model
	SchemaVersion int    `json:"schemaVersion"`
	Source        string `json:"source" gorm:"size:127"`
}

func (*ManifestInfo) TableName() string {
	return "manifest_infos"
}

// CrewRecord is one roster member. CrewID is the stable identity and survives renames.
type CrewRecord struct {
	gorm.Model
	CrewID    string  `json:"crewId" gorm:"size:36;uniqueIndex"`
	Name      string  `json:"name" gorm:"size:127;uniqueIndex"`
	Trait     string  `json:"trait" gorm:"size:63"`
	Gender    string  `json:"gender" gorm:"size:15"`
	Courage   float64 `json:"courage"`
	Stupidity float64 `json:"stupidity"`
	Badass    bool    `json:"badass"`
	Status    string  `json:"status" gorm:"size:15;index"`
}

func (*CrewRecord) TableName() string {
	return "crew_records"
}
