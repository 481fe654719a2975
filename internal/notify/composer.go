// internal/notify/composer.go
package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// Composer renders the notification bodies. Rendering is pure: the same
// payload always produces byte-identical HTML, which keeps snapshot tests
// honest. Output is a self-contained document with inline styles only, since
// mail clients do not reliably fetch external CSS.
type Composer struct {
	dashboardURL string
	companyName  string
	adminTmpl    *template.Template
	customerTmpl *template.Template
}

func NewComposer(dashboardURL, companyName string) *Composer {
	return &Composer{
		dashboardURL: dashboardURL,
		companyName:  companyName,
		adminTmpl:    template.Must(template.New("admin").Parse(adminTemplate)),
		customerTmpl: template.Must(template.New("customer").Parse(customerTemplate)),
	}
}

// detailRow is one rendered line of the optional application details.
type detailRow struct {
	Label string
	Value string
}

type templateData struct {
	Payload      *ApplicationPayload
	CompanyName  string
	DashboardURL string
	Amount       string
	SubmittedAt  string
	StatusLabel  string
	StatusColor  template.CSS
	DetailRows   []detailRow
}

func (c *Composer) buildData(p *ApplicationPayload) *templateData {
	return &templateData{
		Payload:      p,
		CompanyName:  c.companyName,
		DashboardURL: c.dashboardURL,
		Amount:       FormatRupiah(p.Amount),
		SubmittedAt:  FormatDateID(p.SubmittedAt),
		StatusLabel:  p.Status.Label(),
		StatusColor:  template.CSS(p.Status.Color()),
		DetailRows:   detailRows(p.AdditionalDetails),
	}
}

// detailRows produces one row per populated optional field, in a fixed order.
// Absent fields contribute nothing, not a blank row.
func detailRows(d *AdditionalDetails) []detailRow {
	if d.Empty() {
		return nil
	}

	var rows []detailRow
	for _, r := range []detailRow{
		{"Alamat", d.Address},
		{"Pekerjaan", d.Occupation},
		{"Tempat Kerja", d.Workplace},
		{"Jenis Agunan", d.CollateralType},
		{"Alamat Agunan", d.CollateralAddress},
	} {
		if r.Value != "" {
			rows = append(rows, r)
		}
	}
	return rows
}

// RenderAdminNotification renders the internal notification about a new or
// updated application.
func (c *Composer) RenderAdminNotification(p *ApplicationPayload) (string, error) {
	var buf bytes.Buffer
	if err := c.adminTmpl.Execute(&buf, c.buildData(p)); err != nil {
		return "", fmt.Errorf("render admin notification: %w", err)
	}
	return buf.String(), nil
}

// RenderCustomerConfirmation renders the customer-facing confirmation.
func (c *Composer) RenderCustomerConfirmation(p *ApplicationPayload) (string, error) {
	var buf bytes.Buffer
	if err := c.customerTmpl.Execute(&buf, c.buildData(p)); err != nil {
		return "", fmt.Errorf("render customer confirmation: %w", err)
	}
	return buf.String(), nil
}

// AdminSubject returns the subject line of the internal notification.
func (c *Composer) AdminSubject(p *ApplicationPayload) string {
	return fmt.Sprintf("Pengajuan Pinjaman Baru - %s", p.ApplicationID)
}

// CustomerSubject returns the subject line of the customer confirmation.
func (c *Composer) CustomerSubject(p *ApplicationPayload) string {
	return fmt.Sprintf("Konfirmasi Pengajuan Pinjaman %s", p.ApplicationID)
}

const adminTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="margin:0;padding:0;background-color:#f3f4f6;font-family:Arial,Helvetica,sans-serif;">
<div style="max-width:600px;margin:0 auto;padding:24px;">
  <div style="background-color:#ffffff;border-radius:8px;padding:32px;">
    <h1 style="margin:0 0 8px;font-size:20px;color:#111827;">Pengajuan Pinjaman Baru</h1>
    <p style="margin:0 0 24px;font-size:14px;color:#6b7280;">Sebuah pengajuan baru masuk melalui situs {{.CompanyName}}.</p>
    <table style="width:100%;border-collapse:collapse;font-size:14px;">
      <tr><td style="padding:8px 0;color:#6b7280;width:40%;">ID Aplikasi</td><td style="padding:8px 0;color:#111827;font-weight:bold;">{{.Payload.ApplicationID}}</td></tr>
      <tr><td style="padding:8px 0;color:#6b7280;">Nama</td><td style="padding:8px 0;color:#111827;">{{.Payload.CustomerName}}</td></tr>
      <tr><td style="padding:8px 0;color:#6b7280;">Email</td><td style="padding:8px 0;color:#111827;">{{.Payload.CustomerEmail}}</td></tr>
      <tr><td style="padding:8px 0;color:#6b7280;">Telepon</td><td style="padding:8px 0;color:#111827;">{{.Payload.CustomerPhone}}</td></tr>
      <tr><td style="padding:8px 0;color:#6b7280;">Jumlah Pinjaman</td><td style="padding:8px 0;color:#111827;font-weight:bold;">{{.Amount}}</td></tr>
      <tr><td style="padding:8px 0;color:#6b7280;">Tujuan</td><td style="padding:8px 0;color:#111827;">{{.Payload.Purpose}}</td></tr>
      <tr><td style="padding:8px 0;color:#6b7280;">Status</td><td style="padding:8px 0;"><span style="display:inline-block;padding:4px 12px;border-radius:9999px;color:#ffffff;font-size:12px;background-color:{{.StatusColor}};">{{.StatusLabel}}</span></td></tr>
      <tr><td style="padding:8px 0;color:#6b7280;">Tanggal Pengajuan</td><td style="padding:8px 0;color:#111827;">{{.SubmittedAt}}</td></tr>
    </table>
{{- if .DetailRows}}
    <h2 style="margin:24px 0 8px;font-size:16px;color:#111827;">Detail Tambahan</h2>
    <table style="width:100%;border-collapse:collapse;font-size:14px;">
{{- range .DetailRows}}
      <tr><td style="padding:8px 0;color:#6b7280;width:40%;">{{.Label}}</td><td style="padding:8px 0;color:#111827;">{{.Value}}</td></tr>
{{- end}}
    </table>
{{- end}}
    <div style="margin-top:32px;text-align:center;">
      <a href="{{.DashboardURL}}" style="display:inline-block;padding:12px 32px;background-color:#1d4ed8;color:#ffffff;text-decoration:none;border-radius:6px;font-size:14px;font-weight:bold;">Buka Dashboard</a>
    </div>
  </div>
</div>
</body>
</html>
`

const customerTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="margin:0;padding:0;background-color:#f3f4f6;font-family:Arial,Helvetica,sans-serif;">
<div style="max-width:600px;margin:0 auto;padding:24px;">
  <div style="background-color:#ffffff;border-radius:8px;padding:32px;">
    <h1 style="margin:0 0 8px;font-size:20px;color:#111827;">Terima Kasih, {{.Payload.CustomerName}}</h1>
    <p style="margin:0 0 24px;font-size:14px;color:#374151;">Pengajuan pinjaman Anda telah kami terima dan sedang diproses. Tim kami akan menghubungi Anda dalam 1-2 hari kerja.</p>
    <table style="width:100%;border-collapse:collapse;font-size:14px;background-color:#f9fafb;border-radius:6px;">
      <tr><td style="padding:8px 12px;color:#6b7280;width:40%;">ID Aplikasi</td><td style="padding:8px 12px;color:#111827;font-weight:bold;">{{.Payload.ApplicationID}}</td></tr>
      <tr><td style="padding:8px 12px;color:#6b7280;">Jumlah Pinjaman</td><td style="padding:8px 12px;color:#111827;font-weight:bold;">{{.Amount}}</td></tr>
      <tr><td style="padding:8px 12px;color:#6b7280;">Tujuan</td><td style="padding:8px 12px;color:#111827;">{{.Payload.Purpose}}</td></tr>
      <tr><td style="padding:8px 12px;color:#6b7280;">Status</td><td style="padding:8px 12px;"><span style="display:inline-block;padding:4px 12px;border-radius:9999px;color:#ffffff;font-size:12px;background-color:{{.StatusColor}};">{{.StatusLabel}}</span></td></tr>
      <tr><td style="padding:8px 12px;color:#6b7280;">Tanggal Pengajuan</td><td style="padding:8px 12px;color:#111827;">{{.SubmittedAt}}</td></tr>
    </table>
    <p style="margin:24px 0 0;font-size:13px;color:#6b7280;">Simpan ID aplikasi Anda untuk keperluan komunikasi selanjutnya. Email ini dikirim otomatis oleh {{.CompanyName}}, mohon tidak membalas.</p>
  </div>
</div>
</body>
</html>
`
