// Package main provides the onmydesk operator CLI.
//
// Usage:
//
//	onmydesk reports
//	onmydesk create sales.Daily --param start=D-7 --process
//	onmydesk process <report-id>
//	onmydesk scheduler run --date 2024-01-31
//	onmydesk token alice
//	onmydesk migrate
package main

func main() {
	Execute()
}
