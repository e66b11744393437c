package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bitfantasy/agileboard/internal/board/entity"
	"github.com/bitfantasy/agileboard/internal/board/storage"
	"go.uber.org/zap"
)

const (
	opAddUser    = "addUser"
	opRemoveUser = "removeUser"
)

// Upload is a file handed in by a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AddUser creates a user, uploading the avatar first when one is given.
// A failed avatar upload is logged and the user is created without it.
func (b *Board) AddUser(ctx context.Context, name string, avatar *Upload) (entity.User, error) {
	if err := b.requireConfigured(); err != nil {
		return entity.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	u := entity.User{Name: name}
	if avatar != nil && b.backend.Files != nil {
		path := storage.AvatarPath(b.now(), avatar.Filename)
		stored, err := b.backend.Files.Upload(ctx, storage.BucketAvatars, path, avatar.Body, avatar.Size, avatar.ContentType)
		if err != nil {
			b.logger.Warn("Avatar upload failed, creating user without avatar", zap.String("name", name), zap.Error(err))
		} else {
			url := b.backend.Files.PublicURL(storage.BucketAvatars, stored)
			u.AvatarURL = &url
		}
	}

	var failure error
	if err := b.backend.Users.CreateUser(ctx, &u); err != nil {
		failure = b.fail(opAddUser, err)
	} else {
		b.logger.Info("User added", zap.String("id", u.ID), zap.String("name", u.Name))
	}
	b.refreshAfter(ctx)
	return u, failure
}

// RemoveUser deletes the user. Work items keep their assigneeId.
func (b *Board) RemoveUser(ctx context.Context, id string) error {
	if err := b.requireConfigured(); err != nil {
		return err
	}
	var failure error
	if err := b.backend.Users.DeleteUser(ctx, id); err != nil {
		failure = b.fail(opRemoveUser, err)
	}
	b.refreshAfter(ctx)
	return failure
}
