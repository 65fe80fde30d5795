// Package loader reads the raw Olist tables into a typed domain.TableSet.
//
// Tables come either from one CSV file per table or from a single xlsx
// workbook with one sheet per table. The directory and file names are
// supplied by configuration. Headers are checked before any row is
// decoded: a required table or column that is absent fails with a schema
// error, and a malformed numeric cell fails with a parse error naming the
// table, column and row.
package loader
