package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/timex"
	"github.com/gofiber/fiber/v2"
)

// DefaultReportDays is the period covered when /reports gets no start date.
const DefaultReportDays = 30

func (s *HTTPServer) dashboard(c *fiber.Ctx) error {
	d, err := s.svc.Reports.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": toDashboard(d)})
}

// reportPeriod reads ?start=&end=. end defaults to today (UTC) and start
// to DefaultReportDays days ending at end.
func reportPeriod(c *fiber.Ctx) (time.Time, time.Time, error) {
	start, err := queryDate(c, "start")
	if err != nil {
		return start, start, err
	}
	end, err := queryDate(c, "end")
	if err != nil {
		return start, end, err
	}
	if end.IsZero() {
		end = timex.StartOfDay(time.Now().UTC())
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, 1-DefaultReportDays)
	}
	return start, end, nil
}

func (s *HTTPServer) report(c *fiber.Ctx) error {
	start, end, err := reportPeriod(c)
	if err != nil {
		return err
	}

	r, err := s.svc.Reports.Report(c.UserContext(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": toReport(r)})
}

func (s *HTTPServer) reportPDF(c *fiber.Ctx) error {
	start, end, err := reportPeriod(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.svc.Reports.ReportPDF(c.UserContext(), start, end, &buf); err != nil {
		return err
	}

	name := fmt.Sprintf("sales-report-%s-to-%s.pdf", start.Format(time.DateOnly), end.Format(time.DateOnly))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}
