package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(25,
		text.NewCol(8, data.ClinicName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Official Receipt", props.Text{
			Size:  12,
			Align: align.Right,
			Top:   4,
		}),
	)

	m.AddRow(18,
		col.New(8).Add(
			text.New(data.ClinicAddress, props.Text{Size: 9}),
			text.New(data.ClinicPhone, props.Text{Size: 9, Top: 4}),
		),
		col.New(4).Add(
			text.New("Receipt no: "+data.ReceiptNumber, props.Text{Size: 9, Align: align.Right}),
			text.New("Date paid: "+data.DatePaid, props.Text{Size: 9, Top: 4, Align: align.Right}),
		),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Received from", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(data.PatientName, props.Text{Size: 10, Top: 5}),
			text.New("Patient: "+data.PetName, props.Text{Size: 9, Top: 10}),
		),
		col.New(6).Add(
			text.New("Attending veterinarian", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(data.DoctorName, props.Text{Size: 10, Top: 5}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		text.NewCol(8, data.Service, props.Text{Size: 9}),
		text.NewCol(4, data.Amount, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(14,
		col.New(6).Add(
			text.New("Paid via "+data.PaymentMethod, props.Text{Size: 9, Top: 2}),
		),
		col.New(6).Add(
			text.New("Total: "+data.Amount, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
		),
	)

	if data.Notes != "" {
		m.AddRow(14,
			text.NewCol(12, "Notes: "+data.Notes, props.Text{Size: 8}),
		)
	}

	m.AddRow(12,
		text.NewCol(12, "Processed by "+data.ProcessedBy, props.Text{Size: 8, Top: 4}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
