package cmd

import (
	"fmt"

	"github.com/jing2uo/bkboard/utils"
	"github.com/rs/zerolog/log"
)

// Trim 只保留最近 keep 个日期列, backup 时先备份原文件
func Trim(path string, keep int, backup bool) error {
	if keep <= 0 {
		return fmt.Errorf("keep must be positive, got %d", keep)
	}
	t, err := loadTable(path)
	if err != nil {
		return err
	}

	removed := t.KeepLast(keep)
	if len(removed) == 0 {
		log.Info().Int("dates", len(t.Dates())).Msg("🌲 无需裁剪")
		return nil
	}

	if backup {
		bak, err := utils.BackupFile(path)
		if err != nil {
			return err
		}
		log.Info().Str("path", bak).Msg("💾 已备份")
	}

	if err := t.Write(path); err != nil {
		return err
	}
	log.Info().Int("removed", len(removed)).Str("from", removed[0]).Str("to", removed[len(removed)-1]).Msg("✂️ 已裁剪旧日期列")
	return nil
}
