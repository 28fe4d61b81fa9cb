package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"polycare/m/domain"
	"polycare/m/internal/ledger"
	"polycare/m/internal/store"
)

const openingStockActor = "Opening Stock Import"

var stockColumns = []string{
	"medicineId", "name", "company", "formulation", "category", "quantity",
	"buyingPrice", "sellingPrice", "batchNumber", "expiryDate", "receiptNo",
}

// LoadOpeningStockFile imports the CSV at path when the catalog is empty.
func LoadOpeningStockFile(ctx context.Context, s *store.Store, l *ledger.Ledger, log *zap.Logger, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	medicines, err := s.ListMedicines(ctx)
	if err != nil {
		return 0, err
	}
	if len(medicines) > 0 {
		log.Info("opening stock skipped, catalog already populated", zap.Int("medicines", len(medicines)))
		return 0, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open opening stock %s: %w", path, err)
	}
	defer file.Close()
	return LoadOpeningStock(ctx, l, log, file)
}

// LoadOpeningStock receives one batch per CSV row through the ledger. Rows
// that fail to parse or are rejected are logged and skipped.
func LoadOpeningStock(ctx context.Context, l *ledger.Ledger, log *zap.Logger, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read opening stock header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return 0, err
	}

	ctx = ledger.WithActor(ctx, domain.Actor{Name: openingStockActor})
	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Warn("unable to read opening stock row", zap.Int("line", line), zap.Error(err))
			continue
		}

		in, err := parseStockRow(record, index)
		if err != nil {
			log.Warn("skipping opening stock row", zap.Int("line", line), zap.Error(err))
			continue
		}
		if _, err := l.Restock(ctx, in); err != nil {
			if errors.Is(err, ledger.ErrInvalidQuantity) || errors.Is(err, ledger.ErrInvalidPrice) || errors.Is(err, ledger.ErrInvalidInput) {
				log.Warn("skipping opening stock row", zap.Int("line", line), zap.Error(err))
				continue
			}
			return rows, fmt.Errorf("opening stock line %d: %w", line, err)
		}
		rows++
	}

	log.Info("opening stock imported", zap.Int("batches", rows))
	return rows, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"medicineId", "name", "quantity", "batchNumber", "expiryDate"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("opening stock header is missing %q (expected columns: %s)", required, strings.Join(stockColumns, ","))
		}
	}
	return index, nil
}

func parseStockRow(record []string, index map[string]int) (ledger.RestockInput, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	number := func(name string) (decimal.Decimal, error) {
		raw := field(name)
		if raw == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", name, err)
		}
		return d, nil
	}

	formulation, ok := domain.ParseFormulation(field("formulation"))
	if !ok {
		return ledger.RestockInput{}, fmt.Errorf("unknown formulation %q", field("formulation"))
	}
	qty, err := number("quantity")
	if err != nil {
		return ledger.RestockInput{}, err
	}
	cost, err := number("buyingPrice")
	if err != nil {
		return ledger.RestockInput{}, err
	}
	price, err := number("sellingPrice")
	if err != nil {
		return ledger.RestockInput{}, err
	}
	expiry, err := time.Parse("2006-01-02", field("expiryDate"))
	if err != nil {
		return ledger.RestockInput{}, fmt.Errorf("expiryDate: %w", err)
	}

	return ledger.RestockInput{
		MedicineID:   field("medicineId"),
		Name:         field("name"),
		Company:      field("company"),
		Formulation:  formulation,
		Category:     field("category"),
		Quantity:     qty,
		BuyingPrice:  cost,
		SellingPrice: price,
		BatchNumber:  field("batchNumber"),
		ExpiryDate:   expiry,
		ReceiptNo:    field("receiptNo"),
	}, nil
}
