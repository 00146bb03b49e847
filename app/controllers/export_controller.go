package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/app/repository"
	"github.com/ManuelReschke/CashFox/internal/pkg/apperr"
	"github.com/ManuelReschke/CashFox/internal/pkg/archive"
	"github.com/ManuelReschke/CashFox/internal/pkg/export"
)

func exportData(c *fiber.Ctx) (uint, export.Data, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return 0, export.Data{}, err
	}
	l, err := loadLedger(repository.GetGlobalRepositories(), userID)
	if err != nil {
		return 0, export.Data{}, err
	}
	return userID, export.Data{Expenses: l.Expenses, Income: l.Income, Investments: l.Investments}, nil
}

// HandleExportCSV downloads all transactions as CSV.
func HandleExportCSV(c *fiber.Ctx) error {
	userID, data, err := exportData(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	body, err := export.CSV(data)
	if err != nil {
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}
	return sendExport(c, userID, export.CSVFileName(clock()), "text/csv; charset=utf-8", body)
}

// HandleExportPDF downloads the financial report as PDF.
func HandleExportPDF(c *fiber.Ctx) error {
	userID, data, err := exportData(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	body, err := export.PDF(data, clock())
	if err != nil {
		log.Errorf("[Export] PDF generation failed for user %d: %v", userID, err)
		return apperr.Respond(c, apperr.E(apperr.KindInternal, "", err))
	}
	return sendExport(c, userID, export.PDFFileName(clock()), "application/pdf", body)
}

// sendExport writes the file and stores a copy when archiving is enabled.
// A failed archive upload never fails the download.
func sendExport(c *fiber.Ctx, userID uint, fileName, contentType string, body []byte) error {
	if a := archive.Default(); a != nil {
		ctx, cancel := requestContext()
		res, err := a.Archive(ctx, userID, fileName, body)
		cancel()
		if err != nil {
			log.Warnf("[Export] Archive upload failed for user %d: %v", userID, err)
		} else {
			c.Set("X-Archive-Key", res.ObjectKey)
		}
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Send(body)
}
