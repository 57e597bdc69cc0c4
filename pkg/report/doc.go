/*
Package report renders confirmed complaints into fixed-layout documents.

The text layout is a stable contract: line order and labels never change, and
empty additional details print as "N/A". The page primitive is pluggable
through PageWriter; the default writes a single-page PDF.
*/
package report
