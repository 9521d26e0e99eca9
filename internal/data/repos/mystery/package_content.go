package mystery

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/mysteryparty-backend/internal/domain"
	"github.com/yungbote/mysteryparty-backend/internal/platform/dbctx"
	"github.com/yungbote/mysteryparty-backend/internal/platform/logger"
)

type PackageContentRepo interface {
	GetByConversationID(dbc dbctx.Context, conversationID uuid.UUID) (*types.PackageContent, error)
	GetSignals(dbc dbctx.Context, conversationID uuid.UUID) (types.ContentSignals, error)
	GetByHostToken(dbc dbctx.Context, token string) (*types.PackageContent, error)
	GetCharacterByToken(dbc dbctx.Context, token string) (*types.Character, *types.PackageContent, error)
	GetCharacter(dbc dbctx.Context, packageID uuid.UUID, characterID uuid.UUID) (*types.Character, error)
	Save(dbc dbctx.Context, pkg *types.PackageContent) (*types.PackageContent, error)
}

type packageContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackageContentRepo(db *gorm.DB, baseLog *logger.Logger) PackageContentRepo {
	return &packageContentRepo{
		db:  db,
		log: baseLog.With("repo", "PackageContentRepo"),
	}
}

func orderedCharacters(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// GetByConversationID loads the package with characters ordered by position.
// Returns nil when no package has been stored yet.
func (r *packageContentRepo) GetByConversationID(dbc dbctx.Context, conversationID uuid.UUID) (*types.PackageContent, error) {
	if conversationID == uuid.Nil {
		return nil, nil
	}
	var pkg types.PackageContent
	err := dbc.Resolve(r.db).
		Preload("Characters", orderedCharacters).
		Where("conversation_id = ?", conversationID).
		Limit(1).
		Find(&pkg).Error
	if err != nil {
		return nil, err
	}
	if pkg.ID == uuid.Nil {
		return nil, nil
	}
	return &pkg, nil
}

// GetSignals reads only what completeness needs: title, host guide and the
// character count.
func (r *packageContentRepo) GetSignals(dbc dbctx.Context, conversationID uuid.UUID) (types.ContentSignals, error) {
	var out types.ContentSignals
	if conversationID == uuid.Nil {
		return out, nil
	}
	var row struct {
		ID        uuid.UUID
		Title     string
		HostGuide string
	}
	tx := dbc.Resolve(r.db)
	if err := tx.Model(&types.PackageContent{}).
		Select("id", "title", "host_guide").
		Where("conversation_id = ?", conversationID).
		Limit(1).
		Scan(&row).Error; err != nil {
		return out, err
	}
	if row.ID == uuid.Nil {
		return out, nil
	}
	var count int64
	if err := tx.Model(&types.Character{}).
		Where("package_id = ?", row.ID).
		Count(&count).Error; err != nil {
		return out, err
	}
	out.HasTitle = types.PresentText(row.Title)
	out.HasHostGuide = types.PresentText(row.HostGuide)
	out.CharacterCount = int(count)
	return out, nil
}

func (r *packageContentRepo) GetByHostToken(dbc dbctx.Context, token string) (*types.PackageContent, error) {
	if token == "" {
		return nil, nil
	}
	var pkg types.PackageContent
	err := dbc.Resolve(r.db).
		Preload("Characters", orderedCharacters).
		Where("host_access_token = ?", token).
		Limit(1).
		Find(&pkg).Error
	if err != nil {
		return nil, err
	}
	if pkg.ID == uuid.Nil {
		return nil, nil
	}
	return &pkg, nil
}

// GetCharacterByToken returns the character and its parent package without
// the package's other characters.
func (r *packageContentRepo) GetCharacterByToken(dbc dbctx.Context, token string) (*types.Character, *types.PackageContent, error) {
	if token == "" {
		return nil, nil, nil
	}
	tx := dbc.Resolve(r.db)
	var ch types.Character
	if err := tx.Where("access_token = ?", token).Limit(1).Find(&ch).Error; err != nil {
		return nil, nil, err
	}
	if ch.ID == uuid.Nil {
		return nil, nil, nil
	}
	var pkg types.PackageContent
	if err := tx.Where("id = ?", ch.PackageID).Limit(1).Find(&pkg).Error; err != nil {
		return nil, nil, err
	}
	if pkg.ID == uuid.Nil {
		return nil, nil, nil
	}
	return &ch, &pkg, nil
}

func (r *packageContentRepo) GetCharacter(dbc dbctx.Context, packageID uuid.UUID, characterID uuid.UUID) (*types.Character, error) {
	if packageID == uuid.Nil || characterID == uuid.Nil {
		return nil, nil
	}
	var ch types.Character
	if err := dbc.Resolve(r.db).
		Where("package_id = ? AND id = ?", packageID, characterID).
		Limit(1).
		Find(&ch).Error; err != nil {
		return nil, err
	}
	if ch.ID == uuid.Nil {
		return nil, nil
	}
	return &ch, nil
}

// Save upserts the package by conversation id and replaces its characters.
// The delete and re-insert happen in one transaction so readers never see a
// package with a partial character set.
func (r *packageContentRepo) Save(dbc dbctx.Context, pkg *types.PackageContent) (*types.PackageContent, error) {
	if pkg == nil || pkg.ConversationID == uuid.Nil {
		return nil, nil
	}
	err := dbc.Resolve(r.db).Transaction(func(txx *gorm.DB) error {
		var existing types.PackageContent
		if err := txx.Where("conversation_id = ?", pkg.ConversationID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if existing.ID != uuid.Nil {
			pkg.ID = existing.ID
			pkg.CreatedAt = existing.CreatedAt
			if pkg.HostAccessToken == "" {
				pkg.HostAccessToken = existing.HostAccessToken
			}
		}

		characters := pkg.Characters
		pkg.Characters = nil
		if existing.ID == uuid.Nil {
			if err := txx.Omit(clause.Associations).Create(pkg).Error; err != nil {
				return err
			}
		} else if err := txx.Omit(clause.Associations).Save(pkg).Error; err != nil {
			return err
		}

		if err := txx.Where("package_id = ?", pkg.ID).Delete(&types.Character{}).Error; err != nil {
			return err
		}
		for i := range characters {
			characters[i].ID = uuid.Nil
			characters[i].PackageID = pkg.ID
			characters[i].Position = i
		}
		if len(characters) > 0 {
			if err := txx.Create(&characters).Error; err != nil {
				return err
			}
		}
		pkg.Characters = characters
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}
