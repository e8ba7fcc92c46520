package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eldergrove/eldergrove-server/internal/models"
)

// Exports the live coven directory with member counts and total contribution
// to an xlsx file for the community team.
func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	var covens []models.Coven
	if err := db.Where("deleted_at IS NULL").Order("created_at ASC").Find(&covens).Error; err != nil {
		log.Fatal("failed to list covens:", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Covens"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Name", "Emblem", "Leader", "Members", "Total Contribution", "Founded"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, coven := range covens {
		var memberCount int64
		db.Model(&models.CovenMember{}).Where("coven_id = ?", coven.ID).Count(&memberCount)

		var contribution int64
		db.Model(&models.CovenMember{}).Where("coven_id = ?", coven.ID).
			Select("COALESCE(SUM(contribution), 0)").Scan(&contribution)

		var leader models.Player
		leaderName := ""
		if err := db.First(&leader, coven.LeaderID).Error; err == nil {
			leaderName = leader.DisplayName
		}

		values := []interface{}{
			coven.Name,
			coven.Emblem,
			leaderName,
			memberCount,
			contribution,
			coven.CreatedAt.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	out := fmt.Sprintf("covens_%s.xlsx", time.Now().Format("20060102"))
	if err := f.SaveAs(out); err != nil {
		log.Fatal("failed to save export:", err)
	}

	fmt.Printf("Exported %d covens to %s\n", len(covens), out)
}
