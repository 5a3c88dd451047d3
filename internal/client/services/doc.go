// Package services adapts the client transport to the capabilities the
// voting workflow consumes: authenticators, the eligibility checker, the
// vote submitter and local receipts.
package services
