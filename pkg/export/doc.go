/*
Package export converts document text and entity state sheets to and from
external file formats.

Text travels as a list of Paragraphs made of styled Runs. Markdown is the
editing format; plain text, RTF and DOCX are written from it, and plain
text, RTF and Markdown can be read back. Sheets flatten a reconstructed
attribute tree into labelled rows for rendering or XLSX export.
*/
package export
