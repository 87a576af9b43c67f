package models

import (
	"log"

	"github.com/tribodata/oilwatch_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Organization{},
		&Machine{}, &MachineType{}, &Component{},
		&Report{}, &LabAnalysis{},
		&EtlRun{}, &EtlRunError{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
