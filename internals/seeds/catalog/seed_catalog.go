package catalog

import (
	"encoding/json"
	"errors"
	"log"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	questionModel "medcard_backend/internals/features/catalog/questions/model"
	themeModel "medcard_backend/internals/features/catalog/themes/model"
	ticketModel "medcard_backend/internals/features/catalog/tickets/model"
)

type AnswerSeed struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionSeed struct {
	Text     string       `json:"text"`
	ImageURL *string      `json:"image_url"`
	Answers  []AnswerSeed `json:"answers"`
}

type TicketSeed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Questions   []QuestionSeed `json:"questions"`
}

type ThemeSeed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Tickets     []TicketSeed `json:"tickets"`
}

// SeedCatalogFromJSON loads themes with their tickets, questions and
// answers. Themes whose title already exists are skipped.
func SeedCatalogFromJSON(db *gorm.DB, filePath string, createdBy uuid.UUID) {
	log.Println("📥 Reading catalog seed:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Printf("[ERROR] read catalog seed: %v", err)
		return
	}
	var themes []ThemeSeed
	if err := json.Unmarshal(file, &themes); err != nil {
		log.Printf("[ERROR] decode catalog seed: %v", err)
		return
	}

	for ti, th := range themes {
		var existing themeModel.ThemeModel
		err := db.Where("title = ?", th.Title).Take(&existing).Error
		if err == nil {
			log.Printf("ℹ️ theme '%s' already exists, skipped.", th.Title)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[ERROR] lookup theme '%s': %v", th.Title, err)
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			theme := themeModel.ThemeModel{
				Title: th.Title, Description: th.Description,
				IsActive: true, SortOrder: ti, CreatedBy: createdBy,
			}
			if err := tx.Create(&theme).Error; err != nil {
				return err
			}
			for ki, tk := range th.Tickets {
				themeID := theme.ID
				ticket := ticketModel.TicketModel{
					ThemeID: &themeID, Title: tk.Title, Description: tk.Description,
					IsActive: true, SortOrder: ki, CreatedBy: createdBy,
					Kind: ticketModel.TicketKindPermanent,
				}
				if err := tx.Create(&ticket).Error; err != nil {
					return err
				}
				for qi, qs := range tk.Questions {
					q := questionModel.QuestionModel{
						TicketID: ticket.ID, Text: qs.Text, ImageURL: qs.ImageURL,
						IsActive: true, SortOrder: qi, CreatedBy: createdBy,
					}
					if err := tx.Omit("Answers").Create(&q).Error; err != nil {
						return err
					}
					answers := make([]questionModel.AnswerModel, 0, len(qs.Answers))
					for ai, as := range qs.Answers {
						answers = append(answers, questionModel.AnswerModel{
							QuestionID: q.ID, Text: as.Text, IsCorrect: as.IsCorrect,
							IsActive: true, SortOrder: ai,
						})
					}
					if len(answers) > 0 {
						if err := tx.Create(&answers).Error; err != nil {
							return err
						}
					}
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("[ERROR] seed theme '%s': %v", th.Title, err)
		} else {
			log.Printf("✅ seeded theme '%s' (%d tickets)", th.Title, len(th.Tickets))
		}
	}
}
