package pipeline

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fiscalhub/backend/internal/domain/inbox"
	"github.com/fiscalhub/backend/internal/domain/pipeline"
	"github.com/fiscalhub/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Parse stage errors
var (
	ErrEmptyPayload     = errors.New("pipeline: document has no raw payload to parse")
	ErrMalformedPayload = errors.New("pipeline: malformed document payload")
)

// matchStageInput is the payload carried by a match_products unit.
type matchStageInput struct {
	IssuerTaxID string `json:"issuer_tax_id"`
}

// invoiceXML mirrors the subset of the electronic invoice schema the
// pipeline extracts: parties, totals and line items.
type invoiceXML struct {
	XMLName xml.Name `xml:"nfeProc"`
	Inf     struct {
		Ide struct {
			IssuedAt string `xml:"dhEmi"`
		} `xml:"ide"`
		Issuer struct {
			CNPJ string `xml:"CNPJ"`
			Name string `xml:"xNome"`
		} `xml:"emit"`
		Recipient struct {
			CNPJ string `xml:"CNPJ"`
		} `xml:"dest"`
		Lines []struct {
			Number  int `xml:"nItem,attr"`
			Product struct {
				Code           string `xml:"cProd"`
				Barcode        string `xml:"cEAN"`
				Description    string `xml:"xProd"`
				Classification string `xml:"NCM"`
				Unit           string `xml:"uCom"`
				Quantity       string `xml:"qCom"`
				UnitPrice      string `xml:"vUnCom"`
			} `xml:"prod"`
		} `xml:"det"`
		Total struct {
			ICMS struct {
				Value string `xml:"vNF"`
			} `xml:"ICMSTot"`
		} `xml:"total"`
	} `xml:"NFe>infNFe"`
}

// handleParse extracts structured data from the document's raw payload,
// bulk-inserts its line items and chains a match_products unit carrying the
// issuer's tax id.
func (p *Processor) handleParse(ctx context.Context, unit *pipeline.QueueUnit) (*pipeline.QueueUnit, error) {
	doc, err := p.documents.FindByID(ctx, unit.TenantID, unit.DocumentID)
	if err != nil {
		return nil, err
	}
	if !doc.HasPayload() {
		return nil, ErrEmptyPayload
	}

	if err := doc.MarkProcessing(); err != nil {
		return nil, err
	}

	var invoice invoiceXML
	if err := xml.Unmarshal(doc.RawPayload, &invoice); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	issuedAt, err := parseIssueDate(invoice.Inf.Ide.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	total, err := parseDecimal(invoice.Inf.Total.ICMS.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: total value: %v", ErrMalformedPayload, err)
	}

	doc.SetParsedData(issuedAt, invoice.Inf.Issuer.CNPJ, invoice.Inf.Issuer.Name, invoice.Inf.Recipient.CNPJ, total)

	items := make([]*inbox.LineItem, 0, len(invoice.Inf.Lines))
	for _, line := range invoice.Inf.Lines {
		quantity, err := parseDecimal(line.Product.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d quantity: %v", ErrMalformedPayload, line.Number, err)
		}
		unitPrice, err := parseDecimal(line.Product.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d unit price: %v", ErrMalformedPayload, line.Number, err)
		}

		item := inbox.NewLineItem(doc.TenantID, doc.ID, line.Number)
		item.SupplierCode = line.Product.Code
		item.Description = line.Product.Description
		item.Unit = line.Product.Unit
		item.ClassificationCode = line.Product.Classification
		item.Barcode = line.Product.Barcode
		item.Quantity = quantity
		item.UnitPrice = unitPrice
		items = append(items, item)
	}
	if err := p.lineItems.SaveBatch(ctx, items); err != nil {
		return nil, err
	}

	doc.PendingItems = len(items)
	if err := p.documents.Update(ctx, doc); err != nil {
		return nil, err
	}
	p.audit.Record(ctx, shared.NewAuditEvent(doc.TenantID, "document", doc.ID, "parsed", fmt.Sprintf("%d line items", len(items))))

	payload, err := json.Marshal(matchStageInput{IssuerTaxID: doc.IssuerTaxID})
	if err != nil {
		return nil, err
	}
	return pipeline.NewQueueUnit(doc.TenantID, doc.ID, pipeline.StageMatchProducts, payload)
}

// parseIssueDate accepts RFC3339 issue timestamps and bare dates.
func parseIssueDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("missing issue date")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// parseDecimal treats an empty field as zero.
func parseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
