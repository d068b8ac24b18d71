// Package testutil builds throwaway project trees and asserts on build output.
package testutil
