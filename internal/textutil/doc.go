// Package textutil derives display titles for captured clips.
package textutil
