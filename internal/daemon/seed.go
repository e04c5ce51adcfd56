package daemon

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/warga-app/warga-server/internal/config"
	"github.com/warga-app/warga-server/internal/db/controller/setting"
	"github.com/warga-app/warga-server/internal/db/models"
	"github.com/warga-app/warga-server/internal/uniuri"
)

// instanceIDSetting names the setting holding this deployment's random ID,
// generated on first start and stable afterwards.
const instanceIDSetting = "instance_id"

func seed(cfg *config.Config, db *gorm.DB) {
	if _, err := setting.Get(db, instanceIDSetting); err != nil {
		if !errors.Is(err, setting.ErrSettingNotFound) {
			log.Fatal().Err(err).Msg("failed to read instance id")
			return
		}

		id := uniuri.NewLen(16)
		if _, err := setting.Set(db, instanceIDSetting, []byte(id)); err != nil {
			log.Fatal().Err(err).Msg("failed to store instance id")
			return
		}

		log.Info().Str("instance", id).Msg("generated instance id")
	}

	if !cfg.DevMode {
		return
	}

	// Dev mode gets a ready-to-use account so the API is explorable without
	// going through the OTP flow.
	var count int64

	db.Model(&models.User{}).Count(&count)

	if count == 0 {
		db.Create(
			&models.User{
				Username: "dev",
				Email:    "dev@localhost",
				Password: models.HashPassword("changeme"),
				Active:   true,
			},
		)

		log.Warn().Msg("dev mode: created dev@localhost account with password 'changeme'")
	}
}
