package ingest

import (
	"context"
	"fmt"

	domainChat "github.com/kakaosum/backend/internal/domain/chat"
)

// RebuildReport 从文档重建关系库的结果
type RebuildReport struct {
	Rooms    int `json:"rooms"`
	Dates    int `json:"dates"`
	Restored int `json:"restored"` // 重新插入的消息数
	Skipped  int `json:"skipped"`  // 已存在被跳过的消息数
}

// RebuildFromDocuments 从按日文档重建关系库
// 文档库是事实源；数据库损坏或丢失后，扫描 original 树重新提取全部
// 消息并入库。已存在的行被行级查重跳过，可安全重复执行。
// 每个房间处理完记一条 recovery 状态的审计日志
func (im *Importer) RebuildFromDocuments(ctx context.Context) (*RebuildReport, error) {
	roomNames, err := im.docs.ListRooms()
	if err != nil {
		return nil, err
	}

	report := &RebuildReport{}
	for _, roomName := range roomNames {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		lock := im.roomLock(roomName)
		lock.Lock()
		err := im.rebuildRoom(roomName, report)
		lock.Unlock()
		if err != nil {
			return report, fmt.Errorf("failed to rebuild room %s: %w", roomName, err)
		}
		report.Rooms++
	}

	im.logger.Info("rebuild from documents finished",
		"rooms", report.Rooms, "dates", report.Dates,
		"restored", report.Restored, "skipped", report.Skipped)
	return report, nil
}

// rebuildRoom 重建单个房间
func (im *Importer) rebuildRoom(roomName string, report *RebuildReport) error {
	room, err := im.ensureRoom(roomName, "")
	if err != nil {
		return err
	}

	dates, err := im.docs.AvailableDates(roomName)
	if err != nil {
		return err
	}

	restored, skipped := 0, 0
	for _, date := range dates {
		lines, err := im.docs.LoadDaily(roomName, date)
		if err != nil {
			return err
		}

		result, err := im.messages.AddMessages(room.ID, ExtractMessages(lines, date))
		if err != nil {
			return err
		}
		restored += result.Inserted
		skipped += result.Duplicates
		report.Dates++
	}
	report.Restored += restored
	report.Skipped += skipped

	if err := im.syncLogs.Add(&domainChat.SyncLog{
		RoomID:       room.ID,
		Status:       domainChat.SyncStatusRecovery,
		MessageCount: restored + skipped,
		NewCount:     restored,
	}); err != nil {
		im.logger.Warn("failed to record recovery log", "room", roomName, "error", err)
	}
	return nil
}
