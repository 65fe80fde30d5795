package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"revforecast/internal/config"
	apperrors "revforecast/internal/errors"
	"revforecast/pkg/contracts/domain"
)

const stageName = "load"

// rawTable is a table as read from its source, before decoding.
type rawTable struct {
	name   string
	header []string
	rows   [][]string
}

// Loader reads the configured tables from a directory.
type Loader struct {
	dir    string
	cfg    config.LoaderConfig
	logger *slog.Logger
}

// New creates a loader reading from dir.
func New(dir string, cfg config.LoaderConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Loader{
		dir:    dir,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// Load reads and decodes every table. The category translation table is
// optional; all other tables are required.
func (l *Loader) Load(ctx context.Context) (*domain.TableSet, error) {
	start := time.Now()

	tables := append(append([]string(nil), domain.RequiredTables...), domain.TableCategoryTranslation)

	var raws []*rawTable
	var err error
	switch l.cfg.Format {
	case "xlsx":
		raws, err = l.readWorkbook(ctx, tables)
	default:
		raws, err = l.readCSVFiles(ctx, tables)
	}
	if err != nil {
		return nil, err
	}

	set := &domain.TableSet{Columns: make(map[string][]string, len(raws))}
	for _, raw := range raws {
		if raw == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := decodeInto(set, raw); err != nil {
			return nil, err
		}
		set.Columns[raw.name] = raw.header
	}

	translated := applyCategoryTranslations(set)

	l.logger.InfoContext(ctx, "Tables loaded",
		slog.String("dir", l.dir),
		slog.String("format", l.cfg.Format),
		slog.Int("orders", len(set.Orders)),
		slog.Int("order_items", len(set.OrderItems)),
		slog.Int("customers", len(set.Customers)),
		slog.Int("products", len(set.Products)),
		slog.Int("sellers", len(set.Sellers)),
		slog.Int("payments", len(set.Payments)),
		slog.Int("reviews", len(set.Reviews)),
		slog.Int("translated_products", translated),
		slog.Duration("duration", time.Since(start)))

	return set, nil
}

// readCSVFiles reads one file per table concurrently. The result is
// indexed like tables; a missing optional table leaves a nil entry.
func (l *Loader) readCSVFiles(ctx context.Context, tables []string) ([]*rawTable, error) {
	files := l.cfg.TableFiles()
	raws := make([]*rawTable, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Concurrency)

	for i, table := range tables {
		path := filepath.Join(l.dir, files[table])
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				if os.IsNotExist(err) {
					if isOptional(table) {
						l.logger.DebugContext(gctx, "Optional table not found",
							slog.String("table", table), slog.String("path", path))
						return nil
					}
					return apperrors.NewSchemaError(stageName, table, "")
				}
				return apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
			}
			defer f.Close()

			raw, err := readCSV(table, f)
			if err != nil {
				return err
			}
			raws[i] = raw
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raws, nil
}

// readCSV reads a whole CSV stream. The first record is the header.
func readCSV(table string, r io.Reader) (*rawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewSchemaError(stageName, table, "").
			WithContext("reason", "empty file")
	}
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s header", table), err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read %s", table), err)
	}

	return &rawTable{name: table, header: normalizeHeader(header), rows: rows}, nil
}

// readWorkbook reads one sheet per table from the configured workbook.
// Sheets are named after the table unless the file map overrides them.
func (l *Loader) readWorkbook(ctx context.Context, tables []string) ([]*rawTable, error) {
	path := filepath.Join(l.dir, l.cfg.Workbook)
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	available := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		available[name] = true
	}

	raws := make([]*rawTable, len(tables))
	for i, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sheet := table
		if override, ok := l.cfg.Files[table]; ok && override != "" {
			sheet = override
		}
		if !available[sheet] {
			if isOptional(table) {
				continue
			}
			return nil, apperrors.NewSchemaError(stageName, table, "").WithContext("sheet", sheet)
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %s", sheet), err)
		}
		if len(rows) == 0 {
			return nil, apperrors.NewSchemaError(stageName, table, "").
				WithContext("reason", "empty sheet")
		}
		raws[i] = &rawTable{name: table, header: normalizeHeader(rows[0]), rows: rows[1:]}
	}

	return raws, nil
}

func isOptional(table string) bool {
	return table == domain.TableCategoryTranslation
}

// normalizeHeader trims whitespace and a leading byte order mark.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// applyCategoryTranslations fills the English category name of every
// product whose category has a translation.
func applyCategoryTranslations(set *domain.TableSet) int {
	if len(set.CategoryTranslations) == 0 {
		return 0
	}
	english := make(map[string]string, len(set.CategoryTranslations))
	for _, t := range set.CategoryTranslations {
		english[t.CategoryName] = t.CategoryNameEnglish
	}

	translated := 0
	for i := range set.Products {
		if name, ok := english[set.Products[i].CategoryName]; ok {
			set.Products[i].CategoryNameEnglish = name
			translated++
		}
	}
	return translated
}
