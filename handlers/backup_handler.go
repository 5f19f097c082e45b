package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"StoryVault/middlewares"
	"StoryVault/models"
	"StoryVault/services"
	"StoryVault/snapshot"

	"github.com/labstack/echo/v4"
)

type BackupHandler struct {
	backups *services.SessionBackupService
	archive *services.SnapshotArchiveService
}

func NewBackupHandler(backups *services.SessionBackupService, archive *services.SnapshotArchiveService) *BackupHandler {
	return &BackupHandler{
		backups: backups,
		archive: archive,
	}
}

type restoreResponse struct {
	SessionID uint          `json:"session_id"`
	Type      snapshot.Kind `json:"type"`
}

type verifyResponse struct {
	Valid     bool   `json:"valid"`
	Integrity string `json:"integrity"`
}

func ownerID(c echo.Context) (uint, error) {
	id, ok := middlewares.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return id, nil
}

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return uint(id), nil
}

func bindSnapshot(c echo.Context) (*snapshot.Snapshot, error) {
	snap, err := snapshot.Decode(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid snapshot body").SetInternal(err)
	}
	return snap, nil
}

func (h *BackupHandler) takeSnapshot(c echo.Context, kind snapshot.Kind) (uint, *snapshot.Snapshot, error) {
	owner, err := ownerID(c)
	if err != nil {
		return 0, nil, err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return 0, nil, err
	}

	ctx := c.Request().Context()
	var snap *snapshot.Snapshot
	if kind == snapshot.KindGroup {
		snap, err = h.backups.BackupGroupChat(ctx, owner, id)
	} else {
		snap, err = h.backups.BackupChat(ctx, owner, id)
	}
	return owner, snap, err
}

// BackupChat handles POST /api/chats/:id/backup.
func (h *BackupHandler) BackupChat(c echo.Context) error {
	_, snap, err := h.takeSnapshot(c, snapshot.KindChat)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

// BackupGroupChat handles POST /api/groups/:id/backup.
func (h *BackupHandler) BackupGroupChat(c echo.Context) error {
	_, snap, err := h.takeSnapshot(c, snapshot.KindGroup)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

// Verify handles POST /api/backups/verify.
func (h *BackupHandler) Verify(c echo.Context) error {
	if _, err := ownerID(c); err != nil {
		return err
	}
	snap, err := bindSnapshot(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{
		Valid:     h.backups.VerifyIntegrity(snap),
		Integrity: snap.Integrity,
	})
}

// Restore handles POST /api/backups/restore.
func (h *BackupHandler) Restore(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	snap, err := bindSnapshot(c)
	if err != nil {
		return err
	}

	newID, err := h.backups.RestoreFromBackup(c.Request().Context(), owner, snap)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, restoreResponse{SessionID: newID, Type: snap.Type})
}

func (h *BackupHandler) archiveSession(c echo.Context, kind snapshot.Kind) error {
	owner, snap, err := h.takeSnapshot(c, kind)
	if err != nil {
		return err
	}
	entry, err := h.archive.Archive(c.Request().Context(), owner, snap)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// ArchiveChat handles POST /api/chats/:id/archive.
func (h *BackupHandler) ArchiveChat(c echo.Context) error {
	return h.archiveSession(c, snapshot.KindChat)
}

// ArchiveGroupChat handles POST /api/groups/:id/archive.
func (h *BackupHandler) ArchiveGroupChat(c echo.Context) error {
	return h.archiveSession(c, snapshot.KindGroup)
}

// ListArchives handles GET /api/archives?limit=N.
func (h *BackupHandler) ListArchives(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}

	entries, err := h.archive.List(c.Request().Context(), owner, limit)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []models.BackupHistory{}
	}
	return c.JSON(http.StatusOK, entries)
}

// RestoreArchive handles POST /api/archives/:id/restore.
func (h *BackupHandler) RestoreArchive(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	newID, kind, err := h.archive.RestoreArchived(c.Request().Context(), owner, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, restoreResponse{SessionID: newID, Type: kind})
}

// DeleteArchive handles DELETE /api/archives/:id.
func (h *BackupHandler) DeleteArchive(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.archive.Delete(c.Request().Context(), owner, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
