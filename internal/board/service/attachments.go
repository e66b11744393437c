package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/storage"
	"go.uber.org/zap"
)

const (
	opUploadAttachment = "uploadAttachment"
	opRemoveAttachment = "removeAttachment"
)

// UploadAttachment stores file under attachments/{itemID}/ and appends it
// to the item's attachment list through the regular update path.
func (b *Board) UploadAttachment(ctx context.Context, itemID string, file Upload) (entity.Attachment, error) {
	if err := b.requireConfigured(); err != nil {
		return entity.Attachment{}, err
	}
	if _, ok := b.WorkItem(itemID); !ok {
		return entity.Attachment{}, fmt.Errorf("work item %s: %w", itemID, ErrNotFound)
	}
	if b.backend.Files == nil {
		return entity.Attachment{}, b.fail(opUploadAttachment, fmt.Errorf("file storage: %w", ErrNotConfigured))
	}

	path := storage.AttachmentPath(itemID, b.now(), file.Filename)
	stored, err := b.backend.Files.Upload(ctx, storage.BucketAttachments, path, file.Body, file.Size, file.ContentType)
	if err != nil {
		return entity.Attachment{}, b.fail(opUploadAttachment, err)
	}
	att := entity.Attachment{
		ID:       stored,
		Name:     file.Filename,
		MimeType: file.ContentType,
		URL:      b.backend.Files.PublicURL(storage.BucketAttachments, stored),
	}
	b.logger.Info("Attachment uploaded", zap.String("item_id", itemID), zap.String("path", stored))

	err = b.updateWorkItem(ctx, opUploadAttachment, itemID, func(current *entity.WorkItem) (entity.WorkItemPatch, error) {
		if current == nil {
			return entity.WorkItemPatch{}, fmt.Errorf("work item %s: %w", itemID, ErrNotFound)
		}
		list := make([]entity.Attachment, 0, len(current.Attachments)+1)
		list = append(list, current.Attachments...)
		list = append(list, att)
		return entity.WorkItemPatch{Attachments: &list}, nil
	})
	return att, err
}

// RemoveAttachment drops the attachment from the item's list and persists
// the whole list. The stored object is left in place.
func (b *Board) RemoveAttachment(ctx context.Context, itemID, attachmentID string) error {
	return b.updateWorkItem(ctx, opRemoveAttachment, itemID, func(current *entity.WorkItem) (entity.WorkItemPatch, error) {
		if current == nil {
			return entity.WorkItemPatch{}, fmt.Errorf("work item %s: %w", itemID, ErrNotFound)
		}
		list := make([]entity.Attachment, 0, len(current.Attachments))
		for _, a := range current.Attachments {
			if a.ID != attachmentID {
				list = append(list, a)
			}
		}
		if len(list) == len(current.Attachments) {
			return entity.WorkItemPatch{}, fmt.Errorf("attachment %s: %w", attachmentID, ErrNotFound)
		}
		return entity.WorkItemPatch{Attachments: &list}, nil
	})
}
