// Package layout names the files and folders of an output item so media
// centers (Kodi, Jellyfin, Emby) pick them up.
//
// Movie:
//
//	<Title> (<Year>)/<Title> (<Year>).nfo
//	<Title> (<Year>)/images/poster.jpg, fanart.jpg, banner.jpg, backdropN.jpg, logo.png
//	<Title> (<Year>)/actors/<Name_With_Underscores>.jpg
//
// Series add tvshow.nfo, images/stills/NN.jpg and per-episode
// "Season NN/<Title> - SxxEyy - <Episode>.nfo" with a matching -thumb.jpg.
package layout
