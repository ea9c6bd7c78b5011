// Package pkg provides the libraries behind cardforge, a batch renderer of
// product card images.
//
// # Overview
//
// Cardforge reads a spreadsheet, and for every row draws a card: the
// template image, the row's product photo fitted into a box, and text
// zones filled from the row's cells. The pkg directory is organized into
// four areas:
//
//  1. Layout - [config] (the layout document), [layout] (coordinate
//     resolution), [fonts] (typeface fallback chain)
//  2. Drawing - [photo] (download, background removal, placement),
//     [text] (measuring, cleanup, wrapping, drawing), [compose] (one card)
//  3. Input and orchestration - [table] (CSV and Excel rows), [pipeline]
//     (a whole batch)
//  4. Infrastructure - [cache], [errors], [observability], [buildinfo]
//
// # Data Flow
//
//	CSV / XLSX file
//	      ↓
//	 [table] rows
//	      ↓
//	 [compose] template clone → photo box → fields → lists
//	      ↓
//	 [pipeline] save, progress, per-row isolation
//	      ↓
//	 JPEG / PNG cards
package pkg
