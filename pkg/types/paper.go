// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Status is the terminal state of one paper in a harvest run.
// Every paper ends in exactly one of these.
type Status string

const (
	StatusSuccess Status = "success"
	StatusExists  Status = "exists"
	StatusFailed  Status = "failed"
)

// Method records which resolution path produced a PDF.
type Method string

const (
	MethodDirectReference Method = "direct_reference"
	MethodSearchMatch     Method = "search_match"
	MethodExisting        Method = "existing"
)

// FailureReason explains a Failed outcome for triage.
type FailureReason string

const (
	ReasonNoReferenceLink FailureReason = "no_openreview_link"
	ReasonNoMatch         FailureReason = "no_match"
	ReasonVerifyFailed    FailureReason = "verify_failed"
	ReasonDownloadError   FailureReason = "download_error"
)

// Paper holds listing metadata for one paper scraped from a venue page.
// The listing fields are set once at scrape time; the download fields are
// filled in by Annotate and never replace listing data.
type Paper struct {
	// ID is the venue-local identifier (e.g. the last path segment of the
	// paper page URL).
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as it appears on the listing.
	Title string `json:"title" yaml:"title"`

	// Authors is the free-text author string, "; " delimited.
	Authors string `json:"authors" yaml:"authors"`

	// PageURL is the paper's detail page on the venue site.
	PageURL string `json:"paper_page_url" yaml:"paper_page_url"`

	// Year is the conference year.
	Year int `json:"year" yaml:"year"`

	// Venue is the adapter short name (e.g. "iclr", "cvpr").
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// EventType is the presentation track the listing was fetched for.
	EventType string `json:"event_type,omitempty" yaml:"event_type,omitempty"`

	// Type is the session type shown on the card (e.g. "Oral").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// ListingPDFURL is a PDF link carried directly on the listing, when
	// the venue publishes one.
	ListingPDFURL string `json:"listing_pdf_url,omitempty" yaml:"listing_pdf_url,omitempty"`

	DownloadStatus Status        `json:"download_status,omitempty" yaml:"download_status,omitempty"`
	DownloadMethod Method        `json:"download_method,omitempty" yaml:"download_method,omitempty"`
	LocalPDFPath   string        `json:"local_pdf_path,omitempty" yaml:"local_pdf_path,omitempty"`
	PDFURL         string        `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
	FailureReason  FailureReason `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`

	// FailureDetail is the diagnostic that accompanies FailureReason.
	FailureDetail string `json:"failure_detail,omitempty" yaml:"failure_detail,omitempty"`

	// PDFPages is the page count of the stored PDF, zero when unknown.
	PDFPages int `json:"pdf_pages,omitempty" yaml:"pdf_pages,omitempty"`
}

// Annotate returns a copy of p carrying the outcome fields of o.
func (p Paper) Annotate(o Outcome) Paper {
	p.DownloadStatus = o.Status
	p.DownloadMethod = o.Method
	p.LocalPDFPath = o.LocalPath
	p.PDFURL = o.PDFURL
	p.FailureReason = o.Reason
	p.FailureDetail = o.Detail
	p.PDFPages = o.Pages
	return p
}
