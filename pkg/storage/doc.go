// Package storage writes crawl output into a directory.
//
// Manager saves exported result files and downloaded note media with a
// temporary file and an atomic rename, and keeps an index of existing file
// names so media already on disk is not downloaded again:
//
//	manager, err := storage.NewManager(dir)
//	if err != nil {
//	    return err
//	}
//	if !manager.IsSaved("65f0c1_0.jpg") {
//	    err = manager.Save(bytes.NewReader(data), "65f0c1_0.jpg")
//	}
package storage
