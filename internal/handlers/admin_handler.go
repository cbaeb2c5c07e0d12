package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/linkbot/internal/dto"
	"github.com/ahmetcoskunkizilkaya/linkbot/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the read-mostly operator endpoints of the ops API.
type AdminHandler struct {
	statsService  *services.StatsService
	backupService *services.BackupService
}

func NewAdminHandler(statsService *services.StatsService, backupService *services.BackupService) *AdminHandler {
	return &AdminHandler{statsService: statsService, backupService: backupService}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	overview, err := h.statsService.Overview(ctx)
	if err != nil {
		slog.Error("stats overview failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load statistics",
		})
	}
	detailed, err := h.statsService.Detailed(ctx)
	if err != nil {
		slog.Error("detailed stats failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load statistics",
		})
	}
	return c.JSON(fiber.Map{
		"overview": overview,
		"detailed": detailed,
	})
}

func (h *AdminHandler) CreateBackup(c *fiber.Ctx) error {
	info, err := h.backupService.Create(c.UserContext())
	if err != nil {
		if errors.Is(err, services.ErrBackupUnsupported) {
			return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		slog.Error("backup via ops api failed", "admin_id", c.Locals("admin_id"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create backup",
		})
	}
	slog.Info("backup created via ops api", "admin_id", c.Locals("admin_id"), "name", info.Name)
	return c.Status(fiber.StatusCreated).JSON(backupResponse(*info))
}

func (h *AdminHandler) ListBackups(c *fiber.Ctx) error {
	backups, err := h.backupService.List()
	if err != nil {
		slog.Error("list backups failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list backups",
		})
	}
	resp := dto.BackupListResponse{Backups: make([]dto.BackupResponse, 0, len(backups))}
	for _, b := range backups {
		resp.Backups = append(resp.Backups, backupResponse(b))
	}
	resp.Count = len(resp.Backups)
	return c.JSON(resp)
}

func backupResponse(b services.BackupInfo) dto.BackupResponse {
	return dto.BackupResponse{Name: b.Name, Size: b.Size, CreatedAt: b.CreatedAt}
}
