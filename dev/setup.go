package main

import (
	"errors"
	"fmt"
	"os"

	devenv "schedule-backend/dev/env"
	"schedule-backend/internal/db"
	"schedule-backend/pkg/migrations"

	"github.com/xuri/excelize/v2"
)

const (
	dbPath     = "<dev_state>/schedule.db"
	samplePath = "<dev_state>/sample.xlsx"
)

func CreateScheduleDB() error {
	fmt.Println("creating database at", dbPath)
	database, err := migrations.OpenAndMigrateDB(db.Schema, migrations.Config{File: dbPath})
	if err != nil {
		return err
	}
	return database.Close()
}

// CreateSampleSpreadsheet writes a small schedule to try `schedule-cli parse`
// and uploads against.
func CreateSampleSpreadsheet() error {
	path, err := devenv.ResolvePath(samplePath)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows := [][]any{
		{"Неделя", "День", "Пара", "ИПБ-24", "ЭК-23"},
		{"нечетная", "Пн", 1, "Физика", "Химия"},
		{nil, nil, 2, "Математика", nil},
		{nil, "Вт", 1, "История", "Экономика"},
		{"четная", "Пн", 1, "Право", "undefined"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return err
		}
	}
	err = f.MergeCell(sheet, "A2", "A4")
	if err != nil {
		return err
	}

	fmt.Println("writing sample spreadsheet to", path)
	return f.SaveAs(path)
}

func CreateConfig() error {
	_, err := os.Stat("config.json5")
	if err == nil {
		fmt.Println("config.json5 already exists")
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	example, err := os.ReadFile("config.example.json5")
	if err != nil {
		return err
	}
	fmt.Println("creating config.json5 from config.example.json5")
	return os.WriteFile("config.json5", example, 0644)
}
